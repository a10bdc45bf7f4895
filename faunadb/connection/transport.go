package connection

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

var hostname string

func init() {
	hostname, _ = os.Hostname()
}

type observableTransport struct {
	base http.RoundTripper
	conn *Connection
}

func (t *observableTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	label := fmt.Sprintf(
		"faunadb.%s.%s.%s.%s",
		hostname, req.Method, req.URL.Host, req.URL.Path,
	)
	requestView := &RequestViewModel{
		TimeStart: time.Now(),
		Label:     label,
		RequestID: req.Header.Get(headerRequestID),
	}

	if err := t.conn.onRequestStarted.Notify(RequestStartedEvent{
		Sender:      t.conn,
		RequestView: requestView,
	}); err != nil {
		return nil, err
	}

	resp, err := t.base.RoundTrip(req)

	responseTime := time.Since(requestView.TimeStart)
	requestView.ResponseTime = &responseTime
	if resp != nil {
		status := resp.StatusCode
		requestView.Status = &status
	}

	if endErr := t.conn.onRequestEnded.Notify(RequestEndedEvent{
		Sender:      t.conn,
		RequestView: requestView,
		Err:         err,
	}); endErr != nil && err == nil {
		if resp != nil {
			resp.Body.Close()
		}
		return nil, endErr
	}

	return resp, err
}
