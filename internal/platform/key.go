package platform

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// SanitizeFilename collapses whitespace runs in a filename to
// underscores so the name is safe inside an object key.
func SanitizeFilename(name string) string {
	if name == "" {
		return "attachment"
	}
	return whitespaceRe.ReplaceAllString(name, "_")
}

// NewObjectKey builds an object storage key with enough entropy that no
// central coordination is needed: a logical direction prefix, the owner
// identifier, a millisecond timestamp and a UUID discriminator.
// Example: received/alice@example.com/1756600000000-3f2a...-report.pdf
func NewObjectKey(direction, owner, filename string) string {
	return fmt.Sprintf("%s/%s/%d-%s-%s",
		direction, owner, time.Now().UnixMilli(), uuid.New().String(), SanitizeFilename(filename))
}

// NewBodyKey builds the object key for a message body.
func NewBodyKey(direction, owner string) string {
	return fmt.Sprintf("emails/%s/%s/%d-%s-body.html",
		direction, owner, time.Now().UnixMilli(), uuid.New().String())
}
