/*
Copyright © 2017 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.*/


package dfsutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/dfs"
	"github.com/spatialmodel/dfs/engine/netcdf"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Version is the version of the command-line tool.
const Version = "1.0.0"

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to dfsutil.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum level of log messages that are printed.
              It can be one of debug, info, warning, or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file that log messages are copied to.
              It can include environment variables. If LogFile is left blank,
              messages are only written to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the output file should be written.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets: []*pflag.FlagSet{xlsxCmd.Flags(), calcCmd.Flags(), createCmd.Flags(),
				mesh2dfsuCmd.Flags(), shpCmd.Flags()},
		},
		{
			name: "Expression",
			usage: `
              Expression is the expression that calculates the new item,
              for example "WaterLevel + 0.5 * WindSpeed". Item names that are not
              valid identifiers can be written in square brackets.`,
			shorthand:  "e",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "ItemName",
			usage: `
              ItemName is the name of the item created by the calc command.`,
			defaultVal: "Result",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "ItemQuantity",
			usage: `
              ItemQuantity is the item type code and unit abbreviation of the
              item created by the calc command.`,
			defaultVal: map[string]string{"ItemType": "999", "Unit": "-"},
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Definition",
			usage: `
              Definition is the path to the TOML file that defines the title,
              time axis, projection, and items of the file made by the create command.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{createCmd.Flags()},
		},
		{
			name: "Data",
			usage: `
              Data is the path to a CSV file with one row per time step. The first
              column holds the time and the following columns hold the item values
              in the order of the definition.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{createCmd.Flags()},
		},
		{
			name: "StartTime",
			usage: `
              StartTime is the date and time, in RFC 3339 format, of the single
              time step of dfsu files made from meshes.`,
			defaultVal: "2000-01-01T00:00:00Z",
			flagsets:   []*pflag.FlagSet{mesh2dfsuCmd.Flags()},
		},
		{
			name: "Projection",
			usage: `
              Projection is the map projection, as WKT, a proj4 string, or LONG/LAT.`,
			shorthand:  "p",
			defaultVal: "LONG/LAT",
			flagsets:   []*pflag.FlagSet{projCmd.Flags()},
		},
		{
			name: "ShapefileProjection",
			usage: `
              ShapefileProjection is the map projection the shp command writes
              coordinates in. If it is left blank, the projection of the input
              file is kept.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{shpCmd.Flags()},
		},
		{
			name: "Origin",
			usage: `
              Origin is the longitude and latitude of the origin of the model
              coordinate system, followed by its orientation in degrees clockwise
              from projection north.`,
			defaultVal: []float64{0, 0, 0},
			flagsets:   []*pflag.FlagSet{projCmd.Flags()},
		},
		{
			name: "Inverse",
			usage: `
              Inverse converts model coordinates to longitude and latitude
              instead of the other way around.`,
			shorthand:  "i",
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{projCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("DFS")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case []float64:
				vals := option.defaultVal.([]float64)
				s := make([]string, len(vals))
				for j, v := range vals {
					s[j] = fmt.Sprint(v)
				}
				if option.shorthand == "" {
					set.StringSlice(option.name, s, option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, s, option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(infoCmd)
	Root.AddCommand(dumpCmd)
	Root.AddCommand(xlsxCmd)
	Root.AddCommand(calcCmd)
	Root.AddCommand(createCmd)
	Root.AddCommand(mesh2dfsuCmd)
	Root.AddCommand(shpCmd)
	Root.AddCommand(unitsCmd)
	Root.AddCommand(projCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// then sets up logging and the file engine.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("dfsutil: problem reading configuration file: %v", err)
		}
	}
	if err := setLogging(Cfg.GetString("LogLevel"), os.ExpandEnv(Cfg.GetString("LogFile"))); err != nil {
		return err
	}
	return initEngine()
}

// logFile is the currently open log file, if any.
var logFile *os.File

// setLogging configures the standard logrus logger, which the dfs and
// engine packages log to.
func setLogging(level, path string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("dfsutil: invalid LogLevel: %v", err)
	}
	logrus.SetLevel(lvl)
	closeLog()
	if path == "" {
		logrus.SetOutput(os.Stderr)
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dfsutil: problem creating log file: %v", err)
	}
	logFile = f
	logrus.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

func closeLog() {
	if logFile != nil {
		logrus.SetOutput(os.Stderr)
		logFile.Close()
		logFile = nil
	}
}

// initEngine installs the NetCDF file engine unless an engine is
// already installed.
func initEngine() error {
	if _, err := dfs.DefaultEngine(); err == nil {
		return nil
	}
	return dfs.Init(netcdf.New())
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "dfsutil",
	Short: "Inspect, convert, and create DFS files.",
	Long: `dfsutil works with DFS files (dfs0, dfs1, dfs2, dfs3, and dfsu), mesh files,
and EUM units. Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'DFS_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag:  true,
	PersistentPreRunE:  func(*cobra.Command, []string) error { return setConfig() },
	PersistentPostRunE: func(*cobra.Command, []string) error { closeLog(); return nil },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of dfsutil.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "dfsutil v%s\n", Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info FILE",
	Short: "Describe a DFS file.",
	Long: `info prints the header, the items, and value statistics of a DFS file.
For dfsu files it also describes the mesh geometry.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Info(cmd.OutOrStdout(), os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}

var dumpCmd = &cobra.Command{
	Use:   "dump FILE",
	Short: "Print a dfs0 file as CSV.",
	Long: `dump prints the time steps of a dfs0 file as comma-separated values,
one row per time step, starting with a header row of item names.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return Dump(cmd.OutOrStdout(), os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}

var xlsxCmd = &cobra.Command{
	Use:   "xlsx FILE",
	Short: "Export a dfs0 file to Excel.",
	Long:  `xlsx writes the time steps of a dfs0 file to the Excel workbook given by OutputFile.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return ToXLSX(os.ExpandEnv(args[0]), out)
	},
	DisableAutoGenTag: true,
}

var calcCmd = &cobra.Command{
	Use:   "calc FILE",
	Short: "Derive a new dfs0 item.",
	Long: `calc evaluates Expression for every time step of a dfs0 file and writes
a copy of the file with the result added as a new item named ItemName to OutputFile.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		m, err := GetStringMapString("ItemQuantity", Cfg)
		if err != nil {
			return err
		}
		q, err := quantity(m)
		if err != nil {
			return err
		}
		return Calc(os.ExpandEnv(args[0]), out, Cfg.GetString("Expression"), Cfg.GetString("ItemName"), q)
	},
	DisableAutoGenTag: true,
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a dfs0 file.",
	Long: `create makes a dfs0 file from the TOML definition in Definition and the
CSV time steps in Data, and writes it to OutputFile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Create(os.ExpandEnv(Cfg.GetString("Definition")), os.ExpandEnv(Cfg.GetString("Data")), out)
	},
	DisableAutoGenTag: true,
}

var mesh2dfsuCmd = &cobra.Command{
	Use:   "mesh2dfsu MESH",
	Short: "Convert a mesh file to dfsu.",
	Long: `mesh2dfsu writes a mesh file as a 2D dfsu file to OutputFile. The file has
one time step, at StartTime, holding the mean node depth of every element.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return MeshToDfsu(os.ExpandEnv(args[0]), out, Cfg.GetString("StartTime"))
	},
	DisableAutoGenTag: true,
}

var shpCmd = &cobra.Command{
	Use:   "shp FILE",
	Short: "Export mesh elements to a shapefile.",
	Long: `shp writes the elements of a mesh or dfsu file as polygons to the shapefile
OutputFile, reprojected to ShapefileProjection if it is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		return Shapefile(os.ExpandEnv(args[0]), out, Cfg.GetString("ShapefileProjection"))
	},
	DisableAutoGenTag: true,
}

var unitsCmd = &cobra.Command{
	Use:   "units VALUE FROM TO",
	Short: "Convert a value between units.",
	Long: `units converts VALUE from the unit abbreviated FROM to the unit abbreviated TO,
for example 'units 10 ft m'.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := ConvertUnits(args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g\n", v)
		return nil
	},
	DisableAutoGenTag: true,
}

var projCmd = &cobra.Command{
	Use:   "proj X Y",
	Short: "Convert coordinates.",
	Long: `proj converts a longitude and latitude to model coordinates in Projection
with the origin and orientation given by Origin. With Inverse, it converts
model coordinates to longitude and latitude.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		origin, err := toFloat64SliceE(Cfg.Get("Origin"))
		if err != nil {
			return fmt.Errorf("dfsutil: reading Origin: %v", err)
		}
		x, y, err := Project(args[0], args[1], Cfg.GetString("Projection"), origin, Cfg.GetBool("Inverse"))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.10g %.10g\n", x, y)
		return nil
	},
	DisableAutoGenTag: true,
}
