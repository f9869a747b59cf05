package cmd

import (
	"path"

	"github.com/spf13/cobra"

	"github.com/sarth-shah20/mwdocker/internal/archive"
)

var archiveOpts struct {
	bucket string
	prefix string
	region string
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Upload the generated files of every wiki to S3",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := archive.New(ctx, archiveOpts.bucket, archiveOpts.region, log)
		if err != nil {
			return err
		}
		for i := range cfg.Versions {
			instance, err := cfg.Instance(i, len(cfg.Versions))
			if err != nil {
				return err
			}
			prefix := path.Join(archiveOpts.prefix, instance.ContainerBaseName)
			keys, err := a.Upload(ctx, instance.ArtifactDir(), prefix)
			if err != nil {
				return err
			}
			cmd.Printf("%s: %d files to s3://%s/%s\n", instance.ContainerBaseName, len(keys), archiveOpts.bucket, prefix)
		}
		return nil
	},
}

func init() {
	archiveCmd.Flags().StringVar(&archiveOpts.bucket, "bucket", "", "target S3 bucket")
	archiveCmd.Flags().StringVar(&archiveOpts.prefix, "prefix", "", "key prefix inside the bucket")
	archiveCmd.Flags().StringVar(&archiveOpts.region, "region", "", "AWS region, from the environment if empty")
	_ = archiveCmd.MarkFlagRequired("bucket")
	rootCmd.AddCommand(archiveCmd)
}
