// Package convert maps queue messages to domain login events.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/and161185/login-etl/internal/model"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// ErrEmptyBody is returned for a message without a body.
var ErrEmptyBody = errors.New("empty message body")

// FromBody decodes one JSON message body into a RawLoginEvent.
func FromBody(body []byte) (model.RawLoginEvent, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return model.RawLoginEvent{}, ErrEmptyBody
	}
	if body[0] != '{' {
		return model.RawLoginEvent{}, errors.New("body is not a json object")
	}
	var ev model.RawLoginEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return model.RawLoginEvent{}, fmt.Errorf("decode body: %w", err)
	}
	return ev, nil
}

// FromMessage decodes the body of an SQS message.
func FromMessage(m types.Message) (model.RawLoginEvent, error) {
	if m.Body == nil {
		return model.RawLoginEvent{}, ErrEmptyBody
	}
	return FromBody([]byte(aws.ToString(m.Body)))
}

// FromMessages decodes all messages; the first failure aborts with its index.
func FromMessages(in []types.Message) ([]model.RawLoginEvent, error) {
	out := make([]model.RawLoginEvent, 0, len(in))
	for i, m := range in {
		ev, err := FromMessage(m)
		if err != nil {
			return nil, fmt.Errorf("message[%d] %s: %w", i, aws.ToString(m.MessageId), err)
		}
		out = append(out, ev)
	}
	return out, nil
}
