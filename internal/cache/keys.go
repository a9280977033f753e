package cache

import "fmt"

func JobStatusKey(sessionID, jobID string) string {
	return fmt.Sprintf("remix:job:%s:%s", sessionID, jobID)
}

func RateLimitKey(scope string) string {
	return fmt.Sprintf("ratelimit:%s", scope)
}

func EventsChannel(sessionID string) string {
	return fmt.Sprintf("remix:events:%s", sessionID)
}
