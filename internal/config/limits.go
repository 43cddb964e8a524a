// internal/config/limits.go
package config

const (
	DefaultTCPPort    = 502
	DefaultPollRateMs = 1000
	DefaultTimeoutS   = 1.0
	DefaultSlave      = 1
	DefaultReference  = 1

	RTUSlaveMin = 1
	TCPSlaveMin = 0
	SlaveMax    = 255

	ReferenceMin = 1
	ReferenceMax = 65536

	CountMin = 1
	CountMax = 125

	MinStablePollRateMs = 100

	TimeoutMinS = 0.01
	TimeoutMaxS = 10.0

	BaudMin = 1200
	BaudMax = 921600
)
