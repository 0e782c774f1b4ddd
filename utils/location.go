package utils

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

type LocationInfo struct {
	Country string
	Region  string
	City    string
}

// GetLocationInfo resolves an IP to country/region/city. A nil reader or an
// unresolvable IP yields an empty LocationInfo, never an error: geo data is
// enrichment, not a requirement.
func GetLocationInfo(reader *geoip2.Reader, ipAddress string) LocationInfo {
	if reader == nil {
		return LocationInfo{}
	}

	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return LocationInfo{}
	}

	record, err := reader.City(ip)
	if err != nil {
		return LocationInfo{}
	}

	info := LocationInfo{
		Country: record.Country.Names["en"],
		City:    record.City.Names["en"],
	}
	if len(record.Subdivisions) > 0 {
		info.Region = record.Subdivisions[0].Names["en"]
	}
	return info
}
