package intent

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mattjoyce/intentd/internal/log"
)

// Compose intent query parameters.
const (
	ParamText      = "text"
	ParamImageURIs = "imageUris"
)

var (
	// ErrRemoteLocator rejects image entries that reference a remote http(s) resource.
	ErrRemoteLocator = errors.New("image reference contains a remote locator")
	// ErrMalformedImageRef rejects image entries that are not <path>|<width>|<height>.
	ErrMalformedImageRef = errors.New("image reference is not <path>|<width>|<height>")
)

// validImagePattern excludes ':' so no scheme-qualified reference, file://
// included, is accepted.
var validImagePattern = regexp.MustCompile(`^[\w.\-_/]+\|\d+(\.\d+)?\|\d+(\.\d+)?$`)

// ValidateCompose builds a ComposePayload from raw compose parameters.
// Image entries failing validation are dropped one by one; the rest keep
// their input order.
func ValidateCompose(params Params) Payload {
	var payload ComposePayload

	if text, ok := params[ParamText]; ok {
		payload.Text = &text
	}

	raw, ok := params[ParamImageURIs]
	if !ok {
		return payload
	}

	entries := strings.Split(raw, ",")
	payload.Images = make([]ImageRef, 0, len(entries))
	for i, entry := range entries {
		ref, err := ParseImageRef(entry)
		if err != nil {
			log.WithComponent("intent").Debug("image reference dropped",
				"index", i,
				"length", len(entry),
				"reason", err.Error(),
			)
			continue
		}
		payload.Images = append(payload.Images, ref)
	}
	return payload
}

// ParseImageRef validates a single "<path>|<width>|<height>" entry.
func ParseImageRef(entry string) (ImageRef, error) {
	// Remote locators are rejected regardless of shape.
	if strings.Contains(entry, "https://") || strings.Contains(entry, "http://") {
		return ImageRef{}, ErrRemoteLocator
	}
	if !validImagePattern.MatchString(entry) {
		return ImageRef{}, ErrMalformedImageRef
	}

	parts := strings.Split(entry, "|")
	width, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: width: %v", ErrMalformedImageRef, err)
	}
	height, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return ImageRef{}, fmt.Errorf("%w: height: %v", ErrMalformedImageRef, err)
	}

	return ImageRef{URI: parts[0], Width: width, Height: height}, nil
}
