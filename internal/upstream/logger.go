package upstream

import (
	"log"
	"time"
)

// LogRequest logs an upstream request being issued.
func LogRequest(service, method, url string, params map[string]interface{}) {
	if len(params) > 0 {
		log.Printf("[%s] %s %s params=%v", service, method, url, params)
	} else {
		log.Printf("[%s] %s %s", service, method, url)
	}
}

// LogResponse logs an upstream response received.
func LogResponse(service string, duration time.Duration, resultCount int) {
	log.Printf("[%s] response duration=%dms results=%d",
		service, duration.Milliseconds(), resultCount)
}

// LogError logs an error from an upstream operation.
func LogError(service, operation string, err error) {
	log.Printf("[%s] %s error: %v", service, operation, err)
}
