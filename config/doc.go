// Package config loads database settings from YAML.
//
//	log: false
//	slow_query: 200ms
//	filter:
//	  separator: ":"
//	databases:
//	  default:
//	    driver: mysql
//	    host: localhost
//	    port: 3306
//	    database: app
//	    user: root
//	    password: ${DB_PASSWORD}
//
// ${VAR} references are replaced with environment values before decoding.
package config
