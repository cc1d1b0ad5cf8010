package db

// Repositories provides access to all database repositories
type Repositories struct {
	Channels        *ChannelRepository
	ScheduleEntries *ScheduleEntryRepository
	UserChannels    *UserChannelRepository
}

// NewRepositories creates a new repository collection
func NewRepositories(db *DB) *Repositories {
	return &Repositories{
		Channels:        NewChannelRepository(db),
		ScheduleEntries: NewScheduleEntryRepository(db),
		UserChannels:    NewUserChannelRepository(db),
	}
}
