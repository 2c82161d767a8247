package service

import (
	"bytes"
	"strconv"

	"github.com/rwcarlsen/goexif/exif"

	"cloudalbum/model"
)

// enrichFromEXIF fills taken date and geotags from the image's EXIF block
// when the form left them empty. Explicit form values always win, and a
// file without EXIF (PNG, GIF, stripped JPEG) passes through untouched.
func enrichFromEXIF(data []byte, fields UploadFields) UploadFields {
	if fields.TakenDate != "" && fields.GeotagLat != "" && fields.GeotagLng != "" {
		return fields
	}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return fields
	}

	if fields.TakenDate == "" {
		if t, err := x.DateTime(); err == nil {
			fields.TakenDate = t.Format(model.TakenDateLayout)
		}
	}

	if fields.GeotagLat == "" || fields.GeotagLng == "" {
		if lat, lng, err := x.LatLong(); err == nil {
			if fields.GeotagLat == "" {
				fields.GeotagLat = strconv.FormatFloat(lat, 'f', -1, 64)
			}
			if fields.GeotagLng == "" {
				fields.GeotagLng = strconv.FormatFloat(lng, 'f', -1, 64)
			}
		}
	}

	return fields
}
