package publisher

import (
	"errors"
)

// DocumentKey is the stream field holding the encoded document
const DocumentKey = "b64_bono"

// Publisher represents a sink for the generated document
type Publisher interface {
	// Publish stores a message; key identifies the run that produced it
	Publish(key string, message []byte) error

	// Close releases the publisher's resources
	Close() error
}

// Multi publishes to every publisher in order. All publishers are tried
// even when one fails; the errors are joined.
type Multi []Publisher

func (m Multi) Publish(key string, message []byte) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(key, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
