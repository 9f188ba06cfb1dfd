package models

// Version is a client version string and whether it may still call the API.
type Version struct {
	ID        int64
	Version   string
	Supported bool
}
