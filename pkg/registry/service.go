package registry

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// ServiceManager ties a service instance to its consul registration
// lifecycle: register on Start, deregister on Stop or on SIGINT/SIGTERM.
type ServiceManager struct {
	registry      *ConsulRegistry
	serviceConfig *ServiceConfig
	stopChan      chan os.Signal
}

func NewServiceManager(consulConfig *ConsulConfig, serviceConfig *ServiceConfig) (*ServiceManager, error) {
	consulRegistry, err := NewConsulRegistry(consulConfig)
	if err != nil {
		return nil, err
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	return &ServiceManager{
		registry:      consulRegistry,
		serviceConfig: serviceConfig,
		stopChan:      stopChan,
	}, nil
}

func (sm *ServiceManager) Start() error {
	if err := sm.registry.RegisterService(sm.serviceConfig); err != nil {
		return fmt.Errorf("registro de servicio fallido: %w", err)
	}

	go sm.gracefulShutdown()

	log.Printf("Servicio %s registrado en consul", sm.serviceConfig.Name)
	return nil
}

// Stop deregisters the service instance from consul.
func (sm *ServiceManager) Stop() {
	if err := sm.registry.DeregisterService(sm.serviceConfig.ID); err != nil {
		log.Printf("Error anulando registro del servicio: %v", err)
	}
}

func (sm *ServiceManager) gracefulShutdown() {
	<-sm.stopChan
	log.Println("Señal de cierre recibida, anulando registro en consul...")
	sm.Stop()
	os.Exit(0)
}
