package config

// Schema is the JSON schema the parsed configuration must satisfy
const Schema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "type": "object",
    "properties": {
        "backup_dir": {
            "type": "string",
            "minLength": 1
        },
        "backups_to_keep": {
            "type": "integer",
            "minimum": 0
        },
        "upload_attempts": {
            "type": "integer",
            "minimum": 1
        },
        "log_level": {
            "type": "string",
            "enum": ["debug", "info", "warn", "error"]
        },
        "log_format": {
            "type": "string",
            "enum": ["json", "console"]
        },
        "database": {
            "type": "object",
            "properties": {
                "names": {
                    "type": ["array", "null"],
                    "items": {"type": "string", "minLength": 1}
                },
                "user": {"type": "string", "minLength": 1},
                "host": {"type": "string", "minLength": 1},
                "port": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 65535
                },
                "client": {
                    "type": "string",
                    "enum": ["mariadb", "mysql"]
                }
            },
            "required": ["user", "host", "port", "client"]
        },
        "dump": {
            "type": "object",
            "properties": {
                "binary": {"type": "string", "minLength": 1},
                "timeout": {"type": "integer", "minimum": 0}
            }
        },
        "sftp": {
            "type": "object",
            "properties": {
                "port": {
                    "type": "integer",
                    "minimum": 1,
                    "maximum": 65535
                }
            }
        }
    },
    "required": ["backup_dir", "backups_to_keep", "database"]
}`
