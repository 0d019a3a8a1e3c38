package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/mjsorribas/PopcornCast/internal/captions"
	"github.com/mjsorribas/PopcornCast/internal/castsession"
	"github.com/mjsorribas/PopcornCast/internal/config"
	"github.com/mjsorribas/PopcornCast/internal/controller"
	"github.com/mjsorribas/PopcornCast/internal/devices"
	"github.com/mjsorribas/PopcornCast/internal/interactive"
	"github.com/mjsorribas/PopcornCast/internal/iptools"
	"github.com/mjsorribas/PopcornCast/internal/localplayer"
	"github.com/mjsorribas/PopcornCast/internal/mediainfo"
	"github.com/mjsorribas/PopcornCast/internal/mediaserver"
	"github.com/mjsorribas/PopcornCast/internal/screen"
	updates "github.com/mjsorribas/PopcornCast/internal/version"
	"github.com/pkg/errors"
)

var (
	version    string
	build      string
	mediaArg   = flag.String("v", "", "Path to the local video/audio file.")
	urlArg     = flag.String("u", "", "HTTP URL to the media file. The URL is handed to the receiver as is.")
	subsArg    = flag.String("s", "", "Path to the subtitles file.")
	targetPtr  = flag.String("t", "", "Cast to a specific receiver by friendly name, UUID or host:port.")
	localPtr   = flag.Bool("local", false, "Play on this machine instead of casting.")
	listPtr    = flag.Bool("l", false, "List all discovered cast receivers.")
	debugPtr   = flag.Bool("debug", false, "Write debug logs to a file next to the settings.")
	versionPtr = flag.Bool("version", false, "Print version.")

	ErrNoCombi    = errors.New("can't combine -l with other flags")
	ErrFailtoList = errors.New("failed to list receivers")
	ErrNoMedia    = errors.New("no media file or URL, use -v or -u")
)

func main() {
	flag.Parse()

	if len(os.Args) == 1 {
		flag.Usage()
		os.Exit(0)
	}

	exit, err := checkflags()
	check(err)
	if exit {
		os.Exit(0)
	}

	exitCTX, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.GetAppConfig()
	check(err)

	var logOutput io.Writer
	if *debugPtr {
		confDir, err := os.UserConfigDir()
		check(err)

		logFile, err := os.OpenFile(filepath.Join(confDir, "popcorncast", "debug.log"),
			os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		check(err)
		defer logFile.Close()

		logOutput = logFile
	}

	receiverName := *targetPtr
	if receiverName == "" {
		receiverName = cfg.Receiver
	}

	registry := devices.NewRegistry()
	registry.LogOutput = logOutput
	if !*localPtr {
		registry.Warmup()
		registry.Watch(exitCTX)
	}

	resolver := func(ctx context.Context) (string, int, error) {
		recv, ok := registry.Lookup(receiverName)
		if !ok {
			return "", 0, castsession.ErrNotReady
		}
		return recv.Host, recv.Port, nil
	}

	var srv *mediaserver.Server
	var sources []controller.MediaSource

	if *mediaArg != "" {
		absMedia, err := filepath.Abs(*mediaArg)
		check(err)

		src := controller.MediaSource{Title: filepath.Base(absMedia)}

		if *localPtr {
			src.URL = absMedia
		} else {
			receiverAddr := ""
			if recv, ok := registry.Lookup(receiverName); ok {
				receiverAddr = recv.Addr()
			}

			listenAddr, err := iptools.ListenAddr(receiverAddr)
			check(err)

			srv = mediaserver.NewServer(listenAddr)
			srv.LogOutput = logOutput

			// The String() method of the net/url package will properly
			// escape the route compared to the url.QueryEscape() method.
			mediaRoute := "/" + (&url.URL{Path: filepath.Base(absMedia)}).String()
			srv.AddFile(mediaRoute, absMedia, mediainfo.FromURL(absMedia))
			src.URL = "http://" + listenAddr + mediaRoute

			subsPath := *subsArg
			if subsPath == "" {
				subsPath = captions.TrackFor(absMedia)
			}
			if subsPath != "" {
				body, err := captions.ConvertFile(subsPath)
				check(err)

				subsRoute := "/" + (&url.URL{Path: filepath.Base(subsPath) + ".vtt"}).String()
				srv.AddBytes(subsRoute, captions.ContentType, body)
				src.Captions = "http://" + listenAddr + subsRoute
			}
		}

		sources = append(sources, src)
	}

	if *urlArg != "" {
		// Fail fast on unreachable URLs before touching the receiver.
		if !*localPtr {
			_, err := mediainfo.ProbeURL(exitCTX, *urlArg)
			check(errors.Wrap(err, *urlArg))
		}

		sources = append(sources, controller.MediaSource{
			URL:   *urlArg,
			Title: titleFromURL(*urlArg),
		})
	}

	scr, err := interactive.InitTcellNewScreen(cancel)
	check(err)

	connector := castsession.NewChromecastConnector(resolver)
	connector.LogOutput = logOutput

	local := localplayer.New()
	local.OpenOnPlay = true
	local.LogOutput = logOutput

	ctrl := controller.New(controller.Config{
		Connector:    connector,
		Local:        local,
		Sources:      sources,
		Sink:         scr,
		Font:         cfg.Font,
		BarWidth:     cfg.BarWidth,
		SliderHeight: cfg.SliderHeight,
		LogOutput:    logOutput,
	})
	scr.Player = ctrl

	if srv != nil {
		serverStarted := make(chan error)
		go srv.StartServer(serverStarted)
		// Wait for the HTTP server to properly initialize.
		check(<-serverStarted)
	}

	screenStarted := make(chan error)
	go scr.InterInit(screenStarted)
	check(<-screenStarted)

	if *localPtr {
		err = ctrl.LoadLocal(0)
		if err == nil && cfg.Autoplay {
			err = ctrl.Play()
		}
	} else {
		err = ctrl.Launch(exitCTX, 0, cfg.Autoplay)
	}
	if err != nil {
		scr.Fini()
		check(err)
	}

	<-exitCTX.Done()

	// Receiver teardown can take a few seconds on a sleepy TV.
	screen.Emit(scr, "Disconnecting...")
	_ = ctrl.Stop()
	_ = ctrl.StopApp()
	if srv != nil {
		srv.StopServer()
	}
	screen.Close(scr)
}

func check(err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Encountered error(s): %s\n", err)
		os.Exit(1)
	}
}

func titleFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Path == "" || parsed.Path == "/" {
		return rawURL
	}
	return filepath.Base(parsed.Path)
}

func listFlagFunction() error {
	flagsEnabled := 0
	flag.Visit(func(*flag.Flag) {
		flagsEnabled++
	})

	if flagsEnabled > 1 {
		return ErrNoCombi
	}

	registry := devices.NewRegistry()
	list := registry.Rescan()
	if len(list) == 0 {
		return ErrFailtoList
	}

	fmt.Println()

	for q, recv := range list {
		boldStart := ""
		boldEnd := ""

		if runtime.GOOS == "linux" {
			boldStart = "\033[1m"
			boldEnd = "\033[0m"
		}
		fmt.Printf("%sDevice %v%s\n", boldStart, q+1, boldEnd)
		fmt.Printf("%s--------%s\n", boldStart, boldEnd)
		fmt.Printf("%sName:%s  %s\n", boldStart, boldEnd, recv.Name)
		if recv.Model != "" {
			fmt.Printf("%sModel:%s %s\n", boldStart, boldEnd, recv.Model)
		}
		fmt.Printf("%sAddr:%s  %s\n", boldStart, boldEnd, recv.Addr())
		fmt.Println()
	}

	return nil
}

func checkflags() (exit bool, err error) {
	checkVerflag()

	list, err := checkLflag()
	if err != nil {
		return false, errors.Wrap(err, "checkflags error")
	}
	if list {
		return true, nil
	}

	if err := checkVflag(); err != nil {
		return false, errors.Wrap(err, "checkflags error")
	}

	if err := checkSflag(); err != nil {
		return false, errors.Wrap(err, "checkflags error")
	}

	return false, nil
}

func checkVflag() error {
	if *mediaArg == "" && *urlArg == "" {
		return errors.Wrap(ErrNoMedia, "checkVflag error")
	}

	if *mediaArg != "" {
		if _, err := os.Stat(*mediaArg); os.IsNotExist(err) {
			return errors.Wrap(err, "checkVflag error")
		}
	}

	if *urlArg != "" {
		// Validate URL before proceeding.
		if _, err := url.ParseRequestURI(*urlArg); err != nil {
			return errors.Wrap(err, "checkVflag parse error")
		}
	}

	return nil
}

func checkSflag() error {
	if *subsArg != "" {
		if _, err := os.Stat(*subsArg); os.IsNotExist(err) {
			return errors.Wrap(err, "checkSflag error")
		}
	}

	return nil
}

func checkLflag() (bool, error) {
	if *listPtr {
		if err := listFlagFunction(); err != nil {
			return false, errors.Wrap(err, "checkLflag error")
		}
		return true, nil
	}

	return false, nil
}

func checkVerflag() {
	if *versionPtr {
		fmt.Printf("PopcornCast Version: %s, ", version)
		fmt.Printf("Build: %s\n", build)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if latest, newer, err := updates.CheckLatest(ctx, version); err == nil && newer {
			fmt.Printf("New version available: %s\n", latest)
		}
		os.Exit(0)
	}
}
