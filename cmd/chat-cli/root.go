package main

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"akasha-chat-be/pkg/apiclient"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "CHATCLI"
	configFileName = ".chat-cli"
)

var errNotLoggedIn = errors.New("not logged in, run `chat-cli login` first")

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "chat-cli",
		Short:         "Terminal client for the Akasha chat assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v)
		},
	}

	root.PersistentFlags().String("api-url", "http://localhost:3000/api", "base URL of the chat API")
	root.PersistentFlags().Duration("timeout", 2*time.Minute, "request timeout")
	root.PersistentFlags().Bool("plain", false, "print raw markdown instead of rendering it")
	root.PersistentFlags().String("config", "", "config file (default $HOME/.chat-cli.yaml)")
	for _, name := range []string{"api-url", "timeout", "plain", "config"} {
		if err := v.BindPFlag(name, root.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	app := &cliApp{v: v, in: in, out: out}
	root.AddCommand(
		newLoginCmd(app),
		newRegisterCmd(app),
		newLogoutCmd(app),
		newChatsCmd(app),
		newShowCmd(app),
		newNewCmd(app),
		newSendCmd(app),
		newRenameCmd(app),
		newDeleteCmd(app),
		newToolsCmd(app),
		newProfileCmd(app),
	)
	return root
}

func loadConfig(v *viper.Viper) error {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home)
		v.SetConfigName(configFileName)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// configPath is where credentials are written after login.
func configPath(v *viper.Viper) (string, error) {
	if used := v.ConfigFileUsed(); used != "" {
		return used, nil
	}
	if file := v.GetString("config"); file != "" {
		return file, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName+".yaml"), nil
}

// cliApp is shared by every subcommand.
type cliApp struct {
	v   *viper.Viper
	in  io.Reader
	out io.Writer

	reader *bufio.Reader
}

// input is shared so consecutive prompts do not lose buffered lines.
func (a *cliApp) input() *bufio.Reader {
	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	return a.reader
}

func (a *cliApp) client() *apiclient.Client {
	return apiclient.New(a.v.GetString("api-url"), a.v.GetString("token"), a.v.GetDuration("timeout"))
}

func (a *cliApp) authedClient() (*apiclient.Client, error) {
	if a.v.GetString("token") == "" {
		return nil, errNotLoggedIn
	}
	return a.client(), nil
}

func (a *cliApp) printer() *printer {
	return newPrinter(a.out, a.v.GetBool("plain"))
}

func (a *cliApp) saveCredentials(token, refreshToken string) error {
	path, err := configPath(a.v)
	if err != nil {
		return err
	}
	a.v.Set("token", token)
	a.v.Set("refresh-token", refreshToken)
	return a.v.WriteConfigAs(path)
}
