package main

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/ini.v1"
	"mhs/calculator"
	"mhs/server"
)

var (
	configFile string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:   "mhs",
		Short: "Moving heat source sampling service",
		Long: `mhs evaluates the volumetric heat input of moving Gaussian beams and
rotating friction-stir tools on a sample grid, either once from the command
line or step by step behind a websocket server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "conf/heat_source.ini", "heat source and grid configuration")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level")

	root.AddCommand(serveCommand(), sampleCommand())

	if err := root.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve frames over websocket and metrics over http",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("addr") {
				file, err := ini.Load(configFile)
				if err != nil {
					return errors.Wrapf(err, "load %s", configFile)
				}
				addr = file.Section("server").Key("addr").MustString(addr)
			}
			upgrader := websocket.Upgrader{
				ReadBufferSize:  1024,
				WriteBufferSize: 1024,
				CheckOrigin: func(r *http.Request) bool {
					return true
				},
			}
			return server.NewServer(addr, configFile, upgrader).Serve()
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":9000", "listen address, overrides [server] addr")
	return cmd
}

func sampleCommand() *cobra.Command {
	var (
		at      float64
		csvPath string
	)
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Evaluate the heat input on the grid at one time and write CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := calculator.NewCalculatorFromFile(configFile)
			if err != nil {
				return err
			}
			defer c.Close()
			c.Advance(at)

			out := cmd.OutOrStdout()
			if csvPath != "" {
				f, err := os.Create(csvPath)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return writeCSV(out, c)
		},
	}
	cmd.Flags().Float64VarP(&at, "time", "t", 0, "simulated time in seconds")
	cmd.Flags().StringVar(&csvPath, "csv", "", "write rows to this file instead of stdout")
	return cmd
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// 每个网格点一行：x, y, z, q
func writeCSV(w io.Writer, c *calculator.HeatFieldCalculator) error {
	frame := c.BuildData()
	csvW := csv.NewWriter(w)
	if err := csvW.Write([]string{"x", "y", "z", "q"}); err != nil {
		return err
	}
	layer := frame.Grid.NX * frame.Grid.NY
	for i, p := range calculator.GridPoints(frame.Grid) {
		q := frame.Field[i/layer][i%layer]
		if err := csvW.Write([]string{formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z), formatFloat(q)}); err != nil {
			return err
		}
	}
	csvW.Flush()
	log.WithFields(log.Fields{
		"time":   frame.Time,
		"points": layer * frame.Grid.NZ,
		"max":    frame.Max,
	}).Info("采样完成")
	return csvW.Error()
}
