package logutils

import (
	"strconv"
)

// ShortCallerFormatter reduces zerolog's caller field to file:line
func ShortCallerFormatter(_ uintptr, file string, line int) string {
	short := file
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			short = file[i+1:]
			break
		}
	}
	return short + ":" + strconv.Itoa(line)
}
