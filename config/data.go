package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Data represents the data configuration
type Data struct {
	MongoDB *MongoDB `yaml:"mongodb" validate:"required"`
}

// MongoDB mongodb config struct
type MongoDB struct {
	Master   *MongoNode   `yaml:"master" validate:"required"`
	Slaves   []*MongoNode `yaml:"slaves" validate:"dive"`
	Strategy string       `yaml:"strategy" validate:"oneof=round_robin random weight"`
	Database string       `yaml:"database" validate:"required"`
	MaxRetry int          `yaml:"max_retry" validate:"gte=0"`
}

// MongoNode mongodb node config
type MongoNode struct {
	URI    string `yaml:"uri" validate:"required"`
	Weight int    `yaml:"weight" validate:"gte=0"`
}

func getDataConfig(v *viper.Viper) *Data {
	return &Data{
		MongoDB: getMongoDBConfig(v),
	}
}

// getMongoDBConfig reads MongoDB configurations
func getMongoDBConfig(v *viper.Viper) *MongoDB {
	return &MongoDB{
		Master: &MongoNode{
			URI: v.GetString("data.mongodb.master.uri"),
		},
		Slaves:   getMongoSlaveConfigs(v),
		Strategy: v.GetString("data.mongodb.strategy"),
		Database: v.GetString("data.mongodb.database"),
		MaxRetry: v.GetInt("data.mongodb.max_retry"),
	}
}

// getMongoSlaveConfigs reads MongoDB read replica configurations
func getMongoSlaveConfigs(v *viper.Viper) []*MongoNode {
	var slaves []*MongoNode

	slavesConfig, ok := v.Get("data.mongodb.slaves").([]any)
	if !ok {
		return slaves
	}

	for i := range slavesConfig {
		slave := &MongoNode{
			URI:    v.GetString(fmt.Sprintf("data.mongodb.slaves.%d.uri", i)),
			Weight: getIntOrDefault(v, fmt.Sprintf("data.mongodb.slaves.%d.weight", i), 1),
		}
		if slave.URI == "" {
			continue
		}
		if slave.Weight <= 0 {
			slave.Weight = 1
		}
		slaves = append(slaves, slave)
	}

	return slaves
}
