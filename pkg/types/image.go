package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Image references a file held by the image host.
type Image struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Images is the ordered image list stored on a product.
type Images []Image

// Value stores the list as a JSON array.
func (im Images) Value() (driver.Value, error) {
	if im == nil {
		return "[]", nil
	}
	raw, err := json.Marshal([]Image(im))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan decodes the JSON array written by Value.
func (im *Images) Scan(value interface{}) error {
	if value == nil {
		*im = Images{}
		return nil
	}
	raw, ok := toBytes(value)
	if !ok {
		return fmt.Errorf("images: unsupported scan type %T", value)
	}
	var out []Image
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*im = out
	return nil
}

// PublicIDs returns the host identifiers in order.
func (im Images) PublicIDs() []string {
	ids := make([]string, 0, len(im))
	for _, img := range im {
		ids = append(ids, img.PublicID)
	}
	return ids
}

// Without returns the list minus the given host identifiers along with the removed entries.
func (im Images) Without(publicIDs []string) (Images, Images) {
	drop := make(map[string]struct{}, len(publicIDs))
	for _, id := range publicIDs {
		drop[id] = struct{}{}
	}
	kept := make(Images, 0, len(im))
	removed := Images{}
	for _, img := range im {
		if _, ok := drop[img.PublicID]; ok {
			removed = append(removed, img)
			continue
		}
		kept = append(kept, img)
	}
	return kept, removed
}

// First returns the URL of the leading image, if any.
func (im Images) First() *string {
	if len(im) == 0 {
		return nil
	}
	url := im[0].URL
	return &url
}
