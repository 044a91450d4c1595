package human

import "time"

// DOSDateTime packs a local time into the 16-bit DOS date and time fields
// used by directory entries (2-second resolution, epoch 1980).
func DOSDateTime(t time.Time) (date, tod uint16) {
	tod = uint16(t.Hour())<<11 | uint16(t.Minute())<<5 | uint16(t.Second())>>1
	date = uint16(t.Year()-1980)<<9 | uint16(t.Month())<<5 | uint16(t.Day())
	return date, tod
}

// FromDOSDateTime is the inverse of DOSDateTime, in local time.
func FromDOSDateTime(date, tod uint16) time.Time {
	year := int(date>>9) + 1980
	month := time.Month(date >> 5 & 0x0f)
	day := int(date & 0x1f)
	hour := int(tod >> 11)
	min := int(tod >> 5 & 0x3f)
	sec := int(tod&0x1f) << 1
	return time.Date(year, month, day, hour, min, sec, 0, time.Local)
}
