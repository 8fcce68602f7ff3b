// Package devicectx resolves live device context (owner name, latest sensor
// readings) used to augment the persona instruction.
package devicectx

import (
	"context"
	"errors"
)

// ErrDeviceNotFound indicates the serial is not registered.
var ErrDeviceNotFound = errors.New("device not found")

// Resolver answers a device-context query for one request. The narrowing
// booleans are mutually exclusive by construction (tone.Selector.Climate);
// when both are false the resolver returns the full picture.
type Resolver interface {
	// Resolve returns a free-text context blob and the owner's display
	// name. Either may be empty.
	Resolve(ctx context.Context, deviceSerial string, onlyTemperature, onlyHumidity bool) (contextText, speakerName string, err error)

	// Close releases the underlying connection. Callers own the resolver's
	// lifetime; release it when the conversation loop exits.
	Close() error
}
