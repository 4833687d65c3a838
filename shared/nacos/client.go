// Package nacos registers the service instance with a Nacos naming server.
package nacos

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"merchant-service/shared/logger"

	"github.com/nacos-group/nacos-sdk-go/v2/clients"
	"github.com/nacos-group/nacos-sdk-go/v2/common/constant"
	"github.com/nacos-group/nacos-sdk-go/v2/vo"
)

// Config locates the Nacos servers and namespace.
type Config struct {
	ServerAddr  string // comma separated host:port list
	NamespaceID string
	Group       string
	Username    string
	Password    string
	LogDir      string
	CacheDir    string
}

// Instance describes the registered endpoint.
type Instance struct {
	ServiceName string
	IP          string
	Port        int
	Weight      float64
	Metadata    map[string]string
}

// namingClient is the part of the SDK naming client used here.
type namingClient interface {
	RegisterInstance(param vo.RegisterInstanceParam) (bool, error)
	DeregisterInstance(param vo.DeregisterInstanceParam) (bool, error)
	UpdateInstance(param vo.UpdateInstanceParam) (bool, error)
	CloseClient()
}

// Client registers and refreshes one service instance.
type Client struct {
	config       Config
	namingClient namingClient
	log          logger.Logger
}

// NewClient connects a naming client to the servers in config.ServerAddr.
func NewClient(config Config, log logger.Logger) (*Client, error) {
	if config.NamespaceID == "" {
		config.NamespaceID = "public"
	}
	if config.Group == "" {
		config.Group = "DEFAULT_GROUP"
	}
	if config.LogDir == "" {
		config.LogDir = "/tmp/nacos/log"
	}
	if config.CacheDir == "" {
		config.CacheDir = "/tmp/nacos/cache"
	}

	serverConfigs, err := parseServerAddrs(config.ServerAddr)
	if err != nil {
		return nil, err
	}

	clientConfig := constant.ClientConfig{
		NamespaceId:         config.NamespaceID,
		TimeoutMs:           5000,
		NotLoadCacheAtStart: true,
		LogDir:              config.LogDir,
		CacheDir:            config.CacheDir,
		Username:            config.Username,
		Password:            config.Password,
		LogLevel:            "warn",
	}

	nc, err := clients.NewNamingClient(vo.NacosClientParam{
		ClientConfig:  &clientConfig,
		ServerConfigs: serverConfigs,
	})
	if err != nil {
		return nil, fmt.Errorf("create nacos naming client: %w", err)
	}

	return newClient(config, nc, log), nil
}

func newClient(config Config, nc namingClient, log logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{config: config, namingClient: nc, log: log}
}

func parseServerAddrs(addrs string) ([]constant.ServerConfig, error) {
	var serverConfigs []constant.ServerConfig
	for _, addr := range strings.Split(addrs, ",") {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		host, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid nacos server address %q: %w", addr, err)
		}
		port, err := strconv.ParseUint(portStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid nacos server port %q", portStr)
		}
		serverConfigs = append(serverConfigs, constant.ServerConfig{IpAddr: host, Port: port})
	}
	if len(serverConfigs) == 0 {
		return nil, fmt.Errorf("no nacos server address configured")
	}
	return serverConfigs, nil
}

// RegisterService registers inst. An empty IP is replaced by the first
// non-loopback IPv4 address; the resolved instance is returned.
func (c *Client) RegisterService(inst Instance) (Instance, error) {
	if inst.IP == "" {
		ip, err := localIP()
		if err != nil {
			return inst, err
		}
		inst.IP = ip
	}
	if inst.Weight <= 0 {
		inst.Weight = 10
	}

	ok, err := c.namingClient.RegisterInstance(vo.RegisterInstanceParam{
		Ip:          inst.IP,
		Port:        uint64(inst.Port),
		ServiceName: inst.ServiceName,
		Weight:      inst.Weight,
		Enable:      true,
		Healthy:     true,
		Ephemeral:   true,
		Metadata:    inst.Metadata,
		GroupName:   c.config.Group,
	})
	if err != nil {
		return inst, fmt.Errorf("register %s with nacos: %w", inst.ServiceName, err)
	}
	if !ok {
		return inst, fmt.Errorf("nacos refused registration of %s", inst.ServiceName)
	}
	return inst, nil
}

// DeregisterService removes inst from the registry.
func (c *Client) DeregisterService(inst Instance) error {
	_, err := c.namingClient.DeregisterInstance(vo.DeregisterInstanceParam{
		Ip:          inst.IP,
		Port:        uint64(inst.Port),
		ServiceName: inst.ServiceName,
		Ephemeral:   true,
		GroupName:   c.config.Group,
	})
	if err != nil {
		return fmt.Errorf("deregister %s from nacos: %w", inst.ServiceName, err)
	}
	return nil
}

// StartHealthCheck refreshes inst every interval until ctx is done.
// A non-positive interval means 30s.
func (c *Client) StartHealthCheck(ctx context.Context, inst Instance, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, err := c.namingClient.UpdateInstance(vo.UpdateInstanceParam{
					Ip:          inst.IP,
					Port:        uint64(inst.Port),
					ServiceName: inst.ServiceName,
					Weight:      inst.Weight,
					Enable:      true,
					Healthy:     true,
					Ephemeral:   true,
					Metadata:    inst.Metadata,
					GroupName:   c.config.Group,
				})
				if err != nil {
					c.log.WithError(err).Warn("refresh nacos instance %s:%d", inst.IP, inst.Port)
				}
			}
		}
	}()
}

// Close shuts down the naming client.
func (c *Client) Close() {
	c.namingClient.CloseClient()
}

func localIP() (string, error) {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return "", err
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String(), nil
			}
		}
	}
	return "", fmt.Errorf("no non-loopback IPv4 address found")
}
