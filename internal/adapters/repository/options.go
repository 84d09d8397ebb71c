package repository

// Option configures a Store.
type Option func(*Store)

// WithDefaultSeason sets the season reported when the store is empty.
func WithDefaultSeason(season string) Option {
	return func(s *Store) {
		if season != "" {
			s.defaultSeason = season
		}
	}
}
