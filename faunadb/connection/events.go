package connection

import (
	"strconv"
	"time"
)

// RequestViewModel describes one HTTP exchange. Status and ResponseTime are
// filled in when the exchange ends; Status stays nil on transport failure.
type RequestViewModel struct {
	TimeStart    time.Time
	Label        string
	RequestID    string
	Status       *int
	ResponseTime *time.Duration
}

func (r RequestViewModel) String() string {
	if r.Status != nil {
		return r.Label + "." + strconv.Itoa(*r.Status)
	}
	return r.Label
}

type RequestStartedEvent struct {
	Sender      *Connection
	RequestView *RequestViewModel
}

type RequestEndedEvent struct {
	Sender      *Connection
	RequestView *RequestViewModel
	Err         error
}
