package generator

// Config drives the synthetic raw-record generator.
type Config struct {
	NumUsers            int
	NumInvestments      int
	DuplicateUserChance float64
	RequestEchoChance   float64
	MissingUserIDChance float64
	OwnershipCoverage   float64
	Seed                int64
}

// DefaultConfig returns baseline settings producing a dataset with every
// drift pattern the engine reconciles: duplicate accounts, echoed requests,
// id-less investments and a partially backfilled ownership collection.
func DefaultConfig() Config {
	return Config{
		NumUsers:            500,
		NumInvestments:      2000,
		DuplicateUserChance: 0.1,
		RequestEchoChance:   0.3,
		MissingUserIDChance: 0.15,
		OwnershipCoverage:   0.6,
		Seed:                42,
	}
}
