package event

// PlayerJoined fires when a connection has been given a hero.
type PlayerJoined struct {
	SessionID uint64
	HeroUID   uint64
	Team      string
	Addr      string
}

// PlayerLeft fires when a connection's hero has been deleted.
type PlayerLeft struct {
	SessionID uint64
	HeroUID   uint64
}

type HeroDied struct {
	HeroUID uint64
	Team    string
}

type HeroRespawned struct {
	HeroUID uint64
	Team    string
}

// WaveSpawned fires once per creep wave with the uids of the new creeps.
type WaveSpawned struct {
	Wave int
	UIDs []uint64
}

// EntityRemoved fires for every entity deleted by the end-of-tick sweep.
type EntityRemoved struct {
	UID  uint64
	Kind string
}
