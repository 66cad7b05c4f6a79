package domain

// Inventory is the ordered result of one scanner run over one device.
type Inventory struct {
	Files      []MediaFile
	Photos     int
	RawFiles   int
	Videos     int
	TotalBytes int64
}

// Add appends a classified file and updates the summary counts.
// CameraUnclassified files count as photos until their real type is
// resolved at copy time.
func (inv *Inventory) Add(f MediaFile) {
	inv.Files = append(inv.Files, f)
	inv.TotalBytes += f.Size
	switch f.Category {
	case Photo, CameraUnclassified:
		inv.Photos++
	case Raw:
		inv.RawFiles++
	case Video:
		inv.Videos++
	}
}

// Total returns the number of files in the inventory.
func (inv *Inventory) Total() int {
	return len(inv.Files)
}
