package timezone

import "time"

// Location is the zone portal dates are interpreted in. The portal renders
// due dates in the viewer's local time, so the default is time.Local.
var Location = time.Local

// SetLocation switches Location to the named IANA zone, an empty name
// keeps the current one.
func SetLocation(name string) error {
	if name == "" {
		return nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return err
	}
	Location = loc
	return nil
}

func Now() time.Time {
	return time.Now().In(Location)
}
