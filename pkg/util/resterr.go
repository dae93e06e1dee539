package util

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

// IsPermissionDenied reports whether a REST error means the bot lacks
// the rank or permission for the call.
func IsPermissionDenied(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.Response != nil && rerr.Response.StatusCode == http.StatusForbidden {
		return true
	}
	if rerr.Message != nil && rerr.Message.Code == discordgo.ErrCodeMissingPermissions {
		return true
	}
	return false
}

// IsNotFound reports whether the target of a REST call is already gone,
// which callers treat as success.
func IsNotFound(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	return rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound
}
