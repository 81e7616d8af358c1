package health

import "time"

type Response struct {
	Status      string    `json:"status"`
	ActiveUsers int       `json:"activeUsers"`
	ActiveRooms int       `json:"activeRooms"`
	Timestamp   time.Time `json:"timestamp"`
}
