package config

import "time"

// Static is a fixed configuration, handy for tests and embedding.
// Zero fields fall back to the same defaults as AppConfig.
type Static struct {
	Server      string
	User        string
	AccessToken string
	Device      string
	Poll        time.Duration
	Dispatch    time.Duration
	Failsafe    time.Duration
	Sensitivity float64
	Step        int
	State       string
	Artwork     string
	ArtworkEdge int
	Listen      string
}

func (s Static) ServerURL() string     { return s.Server }
func (s Static) UserID() string        { return s.User }
func (s Static) Token() string         { return s.AccessToken }
func (s Static) ClientName() string    { return "synremote" }
func (s Static) ClientVersion() string { return "1.0.0" }

func (s Static) DeviceName() string {
	if s.Device == "" {
		return appName
	}
	return s.Device
}

func (s Static) PollInterval() time.Duration {
	return orDuration(s.Poll, defaultPollInterval)
}

func (s Static) DispatchInterval() time.Duration {
	return orDuration(s.Dispatch, defaultDispatchInterval)
}

func (s Static) FailsafeTimeout() time.Duration {
	return orDuration(s.Failsafe, defaultFailsafeTimeout)
}

func (s Static) RotarySensitivity() float64 {
	if s.Sensitivity <= 0 {
		return defaultRotarySensitivity
	}
	return s.Sensitivity
}

func (s Static) SeekStep() int {
	if s.Step <= 0 {
		return defaultSeekStep
	}
	return s.Step
}

func (s Static) StateDir() string   { return s.State }
func (s Static) ArtworkDir() string { return s.Artwork }

func (s Static) ArtworkSize() int {
	if s.ArtworkEdge <= 0 {
		return defaultArtworkSize
	}
	return s.ArtworkEdge
}

func (s Static) APIListen() string { return s.Listen }

func orDuration(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
