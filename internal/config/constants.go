package config

// Application constants
const (
	AppName     = "Deaths Data API"
	ServiceName = "deaths-data-api"

	// Publisher endpoints for the monthly deaths by area of usual residence datasets
	ONSBaseURL     = "https://www.ons.gov.uk"
	ONSDataPageURL = ONSBaseURL + "/peoplepopulationandcommunity/birthsdeathsandmarriages/deaths/datasets/monthlyfiguresondeathsregisteredbyareaofusualresidence"
	ONSFileStem    = "/file?uri=/peoplepopulationandcommunity/birthsdeathsandmarriages/deaths/datasets/monthlyfiguresondeathsregisteredbyareaofusualresidence/"

	DefaultUserAgent = "deploy-api/1.0 (+https://github.com/aeturrell/deploy-api)"

	// Earliest reporting year fetched and transformed unless overridden
	DefaultMinYear = 2010
)
