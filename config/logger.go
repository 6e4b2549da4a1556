package config

import (
	"github.com/spf13/viper"
)

// Logger logger config struct
type Logger struct {
	Level      string `yaml:"level" validate:"oneof=trace debug info warn warning error"`
	Format     string `yaml:"format" validate:"oneof=text json"`
	Output     string `yaml:"output" validate:"oneof=stdout stderr file"`
	OutputFile string `yaml:"output_file" validate:"required_if=Output file"`
}

func getLoggerConfig(v *viper.Viper) *Logger {
	return &Logger{
		Level:      v.GetString("logger.level"),
		Format:     v.GetString("logger.format"),
		Output:     v.GetString("logger.output"),
		OutputFile: v.GetString("logger.output_file"),
	}
}
