package model

import "fmt"

// Country is one of the communities the board opens a gallery for out of the box.
type Country struct {
	Name string
	Code string
	Flag string
}

// GalleryDescription is the default description of a seeded gallery.
func (c Country) GalleryDescription() string {
	return fmt.Sprintf("Community for %s residents in Korea", c.Name)
}

// PredefinedCountries is also the display order of the gallery list.
var PredefinedCountries = []Country{
	{Name: "China", Code: "China", Flag: "🇨🇳"},
	{Name: "Vietnam", Code: "Vietnam", Flag: "🇻🇳"},
	{Name: "Thailand", Code: "Thailand", Flag: "🇹🇭"},
	{Name: "Philippines", Code: "Philippines", Flag: "🇵🇭"},
	{Name: "Indonesia", Code: "Indonesia", Flag: "🇮🇩"},
	{Name: "United States", Code: "USA", Flag: "🇺🇸"},
	{Name: "Japan", Code: "Japan", Flag: "🇯🇵"},
	{Name: "Uzbekistan", Code: "Uzbekistan", Flag: "🇺🇿"},
	{Name: "Nepal", Code: "Nepal", Flag: "🇳🇵"},
	{Name: "Cambodia", Code: "Cambodia", Flag: "🇰🇭"},
	{Name: "Mongolia", Code: "Mongolia", Flag: "🇲🇳"},
	{Name: "Russia", Code: "Russia", Flag: "🇷🇺"},
	{Name: "India", Code: "India", Flag: "🇮🇳"},
	{Name: "Bangladesh", Code: "Bangladesh", Flag: "🇧🇩"},
	{Name: "Pakistan", Code: "Pakistan", Flag: "🇵🇰"},
	{Name: "Sri Lanka", Code: "SriLanka", Flag: "🇱🇰"},
	{Name: "Myanmar", Code: "Myanmar", Flag: "🇲🇲"},
	{Name: "United Kingdom", Code: "UK", Flag: "🇬🇧"},
	{Name: "Canada", Code: "Canada", Flag: "🇨🇦"},
	{Name: "Australia", Code: "Australia", Flag: "🇦🇺"},
	{Name: "France", Code: "France", Flag: "🇫🇷"},
	{Name: "Germany", Code: "Germany", Flag: "🇩🇪"},
	{Name: "Brazil", Code: "Brazil", Flag: "🇧🇷"},
	{Name: "Mexico", Code: "Mexico", Flag: "🇲🇽"},
	{Name: "South Africa", Code: "SouthAfrica", Flag: "🇿🇦"},
	{Name: "Spain", Code: "Spain", Flag: "🇪🇸"},
	{Name: "Italy", Code: "Italy", Flag: "🇮🇹"},
	{Name: "New Zealand", Code: "NewZealand", Flag: "🇳🇿"},
	{Name: "Singapore", Code: "Singapore", Flag: "🇸🇬"},
	{Name: "Malaysia", Code: "Malaysia", Flag: "🇲🇾"},
}

// CountryOrder returns the display position of a country name, or -1.
func CountryOrder(name string) int {
	for i, c := range PredefinedCountries {
		if c.Name == name {
			return i
		}
	}
	return -1
}
