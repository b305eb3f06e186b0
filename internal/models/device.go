package models

// DevicePayload is the POST /device request body: a snapshot of the device
// and the app configuration at sync time.
type DevicePayload struct {
	DeviceID         string `json:"deviceId,omitempty"`
	Manufacturer     string `json:"manufacturer"`
	Model            string `json:"model"`
	SDKInt           int    `json:"sdkInt"`
	AppVersion       string `json:"appVersion"`
	Locale           string `json:"locale"`
	TimeZone         string `json:"timeZone"`
	UnitSystem       string `json:"unitSystem"`
	ThemeMode        string `json:"themeMode"`
	DailyGoalML      int    `json:"dailyGoalMl"`
	CupSizeML        int    `json:"cupSizeMl"`
	Adaptive         bool   `json:"adaptive"`
	WeeklyTargetDays int    `json:"weeklyTargetDays"`
}

// DeviceRecord is a DevicePayload plus the server-assigned receive timestamp,
// as stored in the device list file.
type DeviceRecord struct {
	DevicePayload
	ReceivedUTC string `json:"received_utc"`
}

// DeviceResponse is returned by POST /device.
type DeviceResponse struct {
	Saved int `json:"saved"`
}
