package restore

import (
	"errors"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/hoyin666/AntiNuke360/pkg/util"
)

func TestRetryableRESTError(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}

	if retryableRESTError(forbidden) {
		t.Error("a permission rejection must not be retried")
	}
	if retryableRESTError(notFound) {
		t.Error("a missing target must not be retried")
	}
	if !retryableRESTError(errors.New("connection reset")) {
		t.Error("a transport failure must be retried")
	}
}

func TestMutationRetryStopsOnPermissionDenied(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}

	calls := 0
	err := restRetry.Do(func() error {
		calls++
		return forbidden
	}, retryableRESTError)

	if calls != 1 {
		t.Fatalf("calls = %d, a denied mutation must not burn the retry budget", calls)
	}
	if !util.IsPermissionDenied(err) {
		t.Fatalf("err = %v, the terminal error must surface unchanged", err)
	}
}
