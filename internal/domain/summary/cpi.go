package summary

import "strconv"

// CPI-U annual averages (BLS series CUUR0000SA0). The engine performs no
// inflation adjustment itself; the table rides along in metadata so the
// visualization layer can deflate values without a second data source.
var cpiU = map[int]float64{
	1990: 130.7, 1991: 136.2, 1992: 140.3, 1993: 144.5, 1994: 148.2,
	1995: 152.4, 1996: 156.9, 1997: 160.5, 1998: 163.0, 1999: 166.6,
	2000: 172.2, 2001: 177.1, 2002: 179.9, 2003: 184.0, 2004: 188.9,
	2005: 195.3, 2006: 201.6, 2007: 207.3, 2008: 215.3, 2009: 214.5,
	2010: 218.1, 2011: 224.9, 2012: 229.6, 2013: 233.0, 2014: 236.7,
	2015: 237.0, 2016: 240.0, 2017: 245.1, 2018: 251.1, 2019: 255.7,
	2020: 258.8, 2021: 270.9, 2022: 292.7, 2023: 304.7, 2024: 313.0,
	2025: 320.0, // estimate; update when BLS publishes the annual average
}

// cpiTable returns the CPI-U table with string-encoded year keys for the
// wire format.
func cpiTable() map[string]float64 {
	out := make(map[string]float64, len(cpiU))
	for year, index := range cpiU {
		out[strconv.Itoa(year)] = index
	}
	return out
}
