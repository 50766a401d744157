package models

import "time"

const (
	SettingRestaurantName    = "restaurant_name"
	SettingRestaurantAddress = "restaurant_address"
	SettingReceiptFooter     = "receipt_footer"
)

// ApplicationSetting represents a key-value pair for application configuration
type ApplicationSetting struct {
	SettingKey   string    `json:"setting_key" db:"setting_key"`
	SettingValue *string   `json:"setting_value,omitempty" db:"setting_value"`
	Description  *string   `json:"description,omitempty" db:"description"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type UpsertSettingRequest struct {
	SettingValue *string `json:"setting_value"`
	Description  *string `json:"description"`
}
