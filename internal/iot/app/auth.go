package app

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"golang.org/x/crypto/bcrypt"

	"fleettrack/internal/domain"
)

const (
	TelemetryWildcard    = "telemetry/#"
	TelemetryTopicPrefix = "telemetry/"
)

var trackerUsernamePattern = regexp.MustCompile(`^tracker-(\d+)$`)

// AuthResult is the verdict of a broker authentication request. Exactly one
// of Internal or Tracker is set.
type AuthResult struct {
	Internal bool
	Tracker  *domain.Tracker
}

// Authenticate checks a device or internal-service credential. Every failure
// branch returns domain.ErrAuthDenied so callers cannot distinguish unknown
// trackers from bad secrets; logs carry the difference.
func (s *IotService) Authenticate(ctx context.Context, username, password string) (*AuthResult, error) {
	instance := "IotService.Authenticate"

	if username == s.broker.InternalUsername && password == s.broker.InternalPassword {
		return &AuthResult{Internal: true}, nil
	}

	trackerID, ok := ParseTrackerUsername(username)
	if !ok {
		s.logger.Warn(instance, fmt.Sprintf("invalid tracker username format: %s", username))
		return nil, domain.ErrAuthDenied
	}

	tracker, err := s.trackers.GetByID(ctx, trackerID)
	if err != nil {
		s.logger.Warn(instance, fmt.Sprintf("tracker not found: %d", trackerID))
		return nil, domain.ErrAuthDenied
	}

	if err := bcrypt.CompareHashAndPassword([]byte(tracker.DeviceSecretHash), []byte(password)); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("invalid secret for tracker: %d", trackerID))
		return nil, domain.ErrAuthDenied
	}

	return &AuthResult{Tracker: tracker}, nil
}

// CheckACL is the stateless topic authorization decision. The internal
// credential may only subscribe to the wildcard telemetry topic; a tracker
// may only publish to the topic bearing its own id.
func (s *IotService) CheckACL(username, topic, action string) bool {
	if username == s.broker.InternalUsername {
		return action == "subscribe" && topic == TelemetryWildcard
	}

	trackerID, ok := ParseTrackerUsername(username)
	if !ok {
		return false
	}

	return action == "publish" && topic == TelemetryTopicPrefix+strconv.FormatInt(trackerID, 10)
}

func ParseTrackerUsername(username string) (int64, bool) {
	match := trackerUsernamePattern.FindStringSubmatch(username)
	if match == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
