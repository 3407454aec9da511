package main

import (
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/YuminosukeSato/gdreg/pkg/log"
)

// globalFlags 全コマンド共通のフラグ
type globalFlags struct {
	LogLevel string // debug|info|warn|error
	LogFile  string // 空ならstderr
}

// newRootCmd はルートコマンドと、--log-file で開いたログファイルを閉じる関数を返す。
// cobraはRunEがエラーを返すとPostRunを呼ばないため、呼び出し側がExecuteの後に必ず閉じる。
func newRootCmd() (*cobra.Command, func() error) {
	flags := &globalFlags{}
	var logFile *lumberjack.Logger

	cmd := &cobra.Command{
		Use:   "gdreg",
		Short: "Regularized gradient-descent linear regression",
		Long: `gdreg fits a linear model y = Xw + b by batch gradient descent on the
L2-regularized squared-error cost and applies saved models to new data.

Features are z-score normalized before training unless --normalize=false.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var w io.Writer
			if flags.LogFile != "" {
				logFile = &lumberjack.Logger{
					Filename:   flags.LogFile,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
				}
				w = logFile
			}
			return log.SetupLogger(flags.LogLevel, w)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "warn", "log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&flags.LogFile, "log-file", "", "write logs to a rotated file instead of stderr")

	cmd.AddCommand(newTrainCmd())
	cmd.AddCommand(newPredictCmd())

	closeLog := func() error {
		if logFile == nil {
			return nil
		}
		err := logFile.Close()
		logFile = nil
		return err
	}
	return cmd, closeLog
}
