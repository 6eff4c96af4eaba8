package redis

import (
	"fmt"

	"github.com/pmorrell/surveyid/internal/model"
)

// Key prefix for all identity data
const keyPrefix = "surveyid"

// identityKey returns the Redis key for an identity record. All kinds
// share one namespace so public ids are unique across kinds.
func identityKey(id model.PublicID) string {
	return fmt.Sprintf("%s:identity:%s", keyPrefix, id)
}

// participantIndexKey returns the Redis key for the SET of participant
// public ids
func participantIndexKey() string {
	return fmt.Sprintf("%s:idx:participants", keyPrefix)
}

// proxyIndexKey returns the Redis key for the SET of anonymous proxy
// public ids. Membership reveals only that a proxy exists, not whose it
// is.
func proxyIndexKey() string {
	return fmt.Sprintf("%s:idx:proxies", keyPrefix)
}
