package engine

import (
	"fmt"
	"path/filepath"
	"strings"
)

// getResultFolder lays runs out as <results>/<config>/[<start>_<end>/]<data file>.
// Multi-symbol files add a symbol folder below it.
func getResultFolder(configName string, dataPath string, b *BacktestEngineV1) string {
	configFolder := filepath.Join(b.resultsFolder, configName)

	var dataFolder string

	if b.config.StartTime.IsSome() || b.config.EndTime.IsSome() {
		startTimeStr := "all"
		endTimeStr := "all"

		if b.config.StartTime.IsSome() {
			startTimeStr = b.config.StartTime.Unwrap().Format("20060102")
		}

		if b.config.EndTime.IsSome() {
			endTimeStr = b.config.EndTime.Unwrap().Format("20060102")
		}

		dataFolder = filepath.Join(configFolder, fmt.Sprintf("%s_%s", startTimeStr, endTimeStr))
	} else {
		dataFolder = configFolder
	}

	dataFileName := strings.TrimSuffix(filepath.Base(dataPath), filepath.Ext(dataPath))

	return filepath.Join(dataFolder, dataFileName)
}
