package relay

import "strings"

// WellKnownImageKeys are the named slots an image set is read from, in order.
var WellKnownImageKeys = []string{"image1", "image2", "image3", "image4"}

// ImageSet is the image input of one generation. When Ordered is non-nil it is
// used as-is and the other fields are ignored. Otherwise Named is read in
// WellKnownImageKeys order and Extra is used only if no named slot is filled.
type ImageSet struct {
	Ordered []string
	Named   map[string]string
	Extra   []string
}

// NormalizeImages flattens an ImageSet into the ordered reference list sent
// upstream. Blank references are dropped.
func NormalizeImages(set ImageSet) []string {
	if set.Ordered != nil {
		return nonEmpty(set.Ordered)
	}
	var out []string
	for _, key := range WellKnownImageKeys {
		if ref := strings.TrimSpace(set.Named[key]); ref != "" {
			out = append(out, ref)
		}
	}
	if len(out) == 0 {
		out = nonEmpty(set.Extra)
	}
	return out
}

func nonEmpty(refs []string) []string {
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		if ref = strings.TrimSpace(ref); ref != "" {
			out = append(out, ref)
		}
	}
	return out
}
