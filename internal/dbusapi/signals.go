package dbusapi

import "fmt"

// EmitLightChanged emits the LightChanged signal for an applied request.
func (s *Server) EmitLightChanged(lightType string, color uint32, flashMode int32) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	return s.conn.Emit(ObjectPath, InterfaceName+".LightChanged", lightType, color, flashMode)
}

// EmitSliderStateChanged emits the SliderStateChanged signal.
func (s *Server) EmitSliderStateChanged(open bool) error {
	if s.conn == nil {
		return fmt.Errorf("not connected to D-Bus")
	}
	return s.conn.Emit(ObjectPath, InterfaceName+".SliderStateChanged", open)
}
