package config

type StorageConfig struct {
	Provider string `yaml:"provider"` // local, s3, gcs

	LocalBasePath string `yaml:"local_base_path"`
	LocalBaseURL  string `yaml:"local_base_url"`

	S3Bucket string `yaml:"s3_bucket"`
	S3Region string `yaml:"s3_region"`

	GCSBucket          string `yaml:"gcs_bucket"`
	GCSCredentialsFile string `yaml:"gcs_credentials_file"`
}

func loadStorageConfig() *StorageConfig {
	return &StorageConfig{
		Provider:           getEnv("STORAGE_PROVIDER", "local"),
		LocalBasePath:      getEnv("STORAGE_LOCAL_PATH", "./uploads"),
		LocalBaseURL:       getEnv("STORAGE_LOCAL_URL", "http://localhost:8080/uploads"),
		S3Bucket:           getEnv("STORAGE_S3_BUCKET", ""),
		S3Region:           getEnv("STORAGE_S3_REGION", "ap-south-1"),
		GCSBucket:          getEnv("STORAGE_GCS_BUCKET", ""),
		GCSCredentialsFile: getEnv("STORAGE_GCS_CREDENTIALS_FILE", ""),
	}
}
