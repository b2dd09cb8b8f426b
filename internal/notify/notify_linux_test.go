//go:build linux

package notify

import (
	"reflect"
	"testing"
)

func TestNotifySendArgs(t *testing.T) {
	got := notifySendArgs(Notification{Title: "t", Body: "b", Critical: true})
	want := []string{"--urgency", "critical", "--app-name", "evdash", "t", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
	if got := notifySendArgs(Notification{Title: "t"}); got[1] != "normal" {
		t.Errorf("non-critical urgency = %q", got[1])
	}
}
