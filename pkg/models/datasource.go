package models

// DBConfig holds the connection details of the database the questions are asked against.
type DBConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Name     string `json:"name"`
	User     string `json:"user"`
	Password string `json:"-"`
	SSLMode  string `json:"ssl_mode,omitempty"`
	// Schema is the catalog schema that is inspected. Defaults to "public".
	Schema string `json:"schema,omitempty"`
}

// WorkingSchema returns the schema to inspect.
func (c DBConfig) WorkingSchema() string {
	if c.Schema == "" {
		return "public"
	}
	return c.Schema
}
