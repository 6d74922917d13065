package redis

import "strings"

// SessionPattern matches every session event channel.
const SessionPattern = KeyPrefix + ":session:*"

// AssetsChannel announces that a fresh snapshot was written to AssetsKey.
const AssetsChannel = KeyPrefix + ":assets:refreshed"

// AssetsKey holds the cached asset catalogs and price history.
const AssetsKey = KeyPrefix + ":assets:v1"

// SessionChannel is the channel carrying event for one session,
// e.g. "atlasx:session:abc:exchanges.updated".
func SessionChannel(session, event string) string {
	return KeyPrefix + ":session:" + session + ":" + event
}

// ParseSessionChannel splits a session channel into its session id and event.
// Session ids never contain ':'.
func ParseSessionChannel(channel string) (session, event string, ok bool) {
	rest, found := strings.CutPrefix(channel, KeyPrefix+":session:")
	if !found {
		return "", "", false
	}
	session, event, found = strings.Cut(rest, ":")
	if !found || session == "" || event == "" {
		return "", "", false
	}
	return session, event, true
}
