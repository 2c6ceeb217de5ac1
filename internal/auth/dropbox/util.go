package dropbox

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/dropbox/dropbox-sdk-go-unofficial/v6/dropbox/sharing"
)

func normalizePath(p string) string {
	p = "/" + strings.Trim(filepath.ToSlash(p), "/")
	return p
}

func linkURL(md sharing.IsSharedLinkMetadata) string {
	switch m := md.(type) {
	case *sharing.FileLinkMetadata:
		return m.Url
	case *sharing.FolderLinkMetadata:
		return m.Url
	case *sharing.SharedLinkMetadata:
		return m.Url
	default:
		return ""
	}
}

// isLinkExists reports whether err means the path already has a shared link.
func isLinkExists(err error) bool {
	if apiErr, ok := errors.AsType[sharing.CreateSharedLinkWithSettingsAPIError](err); ok {
		return apiErr.EndpointError != nil &&
			apiErr.EndpointError.Tag == "shared_link_already_exists"
	}

	return false
}
