// Package config provides configuration management for scoutcore using
// Viper with support for YAML, JSON and TOML files, environment variables
// and hot-reloading.
//
// # Configuration Loading
//
//	cfg, err := config.LoadConfig("./config.yaml")
//	if err != nil {
//	    return err
//	}
//
// An empty path searches /etc/scoutcore, $HOME/.scoutcore, the working
// directory and the directory of the executable for config.yaml.
//
// # Configuration Format
//
//	app_name: scoutcore
//
//	logger:
//	  level: info          # trace, debug, info, warn, error
//	  format: json         # text or json
//	  output: file         # stdout, stderr or file
//	  output_file: ./logs/scoutcore.log
//
//	data:
//	  mongodb:
//	    master:
//	      uri: mongodb://localhost:27017
//	    slaves:
//	      - uri: mongodb://replica-1:27017
//	        weight: 2
//	    strategy: round_robin   # round_robin, random or weight
//	    database: app
//
//	recompute:
//	  workers: 8
//	  queue_size: 256
//	  task_timeout: 30s
//
//	formula:
//	  max_depth: 32
//	  max_length: 4096
//	  max_passes: 16
//
// # Environment Variables
//
// Keys can be overridden with SCOUTCORE_ prefixed variables, dots become
// underscores:
//
//	export SCOUTCORE_DATA_MONGODB_MASTER_URI=mongodb://db.example.com:27017
//	export SCOUTCORE_RECOMPUTE_WORKERS=16
//
// # Hot Reloading
//
//	config.Watch(func(cfg *config.Config) {
//	    log.Infof(ctx, "configuration reloaded")
//	}, nil)
package config
