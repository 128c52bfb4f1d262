package dicomstack

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Scheme prefixes every image ID produced by this package.
const Scheme = "dicomfile"

// ImageID returns the identifier of one frame of a file. frame is 1-based.
func ImageID(path string, frame int) string {
	return fmt.Sprintf("%s:%s?frame=%d", Scheme, path, frame)
}

// ParseImageID splits an image ID into the file path and the 1-based frame.
func ParseImageID(id string) (string, int, error) {
	rest, ok := strings.CutPrefix(id, Scheme+":")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrBadImageID, id)
	}
	q := strings.LastIndexByte(rest, '?')
	if q < 0 {
		return rest, 1, nil
	}
	values, err := url.ParseQuery(rest[q+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrBadImageID, err)
	}
	frame := 1
	if s := values.Get("frame"); s != "" {
		frame, err = strconv.Atoi(s)
		if err != nil || frame < 1 {
			return "", 0, fmt.Errorf("%w: frame %q", ErrBadImageID, s)
		}
	}
	return rest[:q], frame, nil
}
