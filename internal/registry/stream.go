package registry

import "strings"

// Private per-user streams are keyed "<userID>@order" / "<userID>@account";
// public market-data streams are keyed "<symbol>@depth" / "<symbol>@trade".
// The distinguishing suffixes are fixed and checked explicitly rather than
// inferred, so a symbol that happens to look like a user id can't slip
// through as public.
var privateSuffixes = []string{"@order", "@account"}

func isPrivateStream(streamKey string) bool {
	for _, suffix := range privateSuffixes {
		if strings.HasSuffix(streamKey, suffix) {
			return true
		}
	}
	return false
}

func streamOwner(streamKey string) string {
	for _, suffix := range privateSuffixes {
		if strings.HasSuffix(streamKey, suffix) {
			return strings.TrimSuffix(streamKey, suffix)
		}
	}
	return ""
}
